// Package billing contains the Billing bounded context.
//
// This context owns fiscal invoices, points of sale, branches and the
// authorization codes the tax service issues for them.
//
// Key Aggregates:
//   - Invoice: A fiscal invoice with its emission lifecycle
//   - PointOfSale: A registered emission point, including its contingency state
//   - Branch: A registered company branch
//
// Value Objects:
//   - DailyCode: The daily authorization code (CUFD) of a point of sale
//   - SystemCode: The system authorization code (CUIS) of a branch
package billing
