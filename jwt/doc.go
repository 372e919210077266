// Package jwt encodes and decodes the signed session tokens handed to clients.
//
// A Manager holds the symmetric secret and algorithm. Create builds a fresh claim set
// (uuid jti, iat/nbf at the current second, exp and exp_in only when a TTL is given),
// and Decode verifies a credential and returns an immutable Token. Every verification
// failure is reported as one of ErrSignatureInvalid, ErrTokenMalformed, ErrTokenExpired
// or ErrTokenNotYetValid.
package jwt
