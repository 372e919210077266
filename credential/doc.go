// Package credential extracts the raw signed credential from an inbound request.
//
// A Resolver reads the type-specific cookie first and the Authorization header second;
// when both carry a value the header wins. Header values must have the exact form
// "Bearer <token>".
package credential
