// Package dto contains Data Transfer Objects for HTTP requests and responses.
//
// DTOs are separate from domain entities so that query-string binding rules
// and the JSON shape of the API can change without touching the core.
//
// Naming convention:
//   - Request types: <Action><Resource>Query for GET parameters
//   - Response types: <Resource>Response
package dto
