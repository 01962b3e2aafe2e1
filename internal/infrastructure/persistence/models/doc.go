// Package models contains the GORM persistence models for the ledger tables.
// Models stay separate from domain entities so the domain carries no ORM
// tags; each model converts with ToDomain and a ...ModelFromDomain constructor.
package models
