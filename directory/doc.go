// Package directory holds seedauth.UserDirectory implementations. Memory keeps
// identities in process; the gormdir subpackage reads them from a relational
// database.
package directory
