// Package salonapi is the HTTP client for the upstream salon API, the
// remote system of record for all tenant data.
//
// Every operation is tenant-scoped: the slug travels as both the
// X-Salon-Slug header and the salon query parameter. List responses are
// normalized to a {results, count} page regardless of upstream shape, and
// every failure can be classified into a domain.NormalizedError.
package salonapi
