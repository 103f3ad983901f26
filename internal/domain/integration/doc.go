// Package integration contains the Integration bounded context.
// This context manages the connection to the national tax service bridge.
//
// Key concepts:
//   - TaxAuthorityService: Port interface for talking to the tax service bridge
//   - ServiceEndpoint: Entity describing a configured bridge endpoint
//   - ContingencyEvent: Entity tracking a declared offline-operation window
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
