// Package api provides the market data provider client.
//
// The provider speaks a Yahoo Finance style JSON REST API:
//   - GET /v7/finance/quote?symbols=TASA4.SA
//   - GET /v8/finance/chart/TASA4.SA?range=5d&interval=1d
//   - GET /v7/finance/options/TASA4.SA
//
// Responses are decoded generically and read with JSONPath expressions, so
// missing or renamed fields degrade to null values instead of failing the
// whole ticker.
package api
