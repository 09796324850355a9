// Package core provides the validation and normalization engine that turns
// hand-maintained steel stock spreadsheets into consistent catalog records.
//
// This package is independent of any storage, transport or UI layer. It
// works on an in-memory [Table] of loosely typed [Value] cells and is driven
// by the pipeline package, but can be used from tests or other tools
// without modification.
//
// # Stages
//
// The engine is a sequence of small, order-sensitive steps:
//
//   - [MatchSchema]: fuzzy reconciliation of headers with the [Schema]
//   - [CoerceTypes]: conversion of columns to their declared [DType]
//   - [PruneRows]: removal of rows lacking required values
//   - [NormalizeDimensions]: meter-to-millimeter correction of thickness/width
//   - [AggregateBundles]: grouping by bundle_id with agreement checks
//   - [GradeResolver]: grade designation matching against the active grade list
//   - [FinishResolver]: finish code to label lookup
//   - [Augmenter]: derived fields (form, location, material, category, ...)
//
// # Values
//
// The zero [Value] is the missing marker. Steps never fail on bad cell
// content: a value that cannot be converted becomes missing and the step
// reports an [Issue] instead.
//
// # Error Handling
//
// Row- and bundle-level problems are returned as [Issue] values that the
// caller appends to the file's [FileResult]. File-level problems are typed
// errors ([SchemaMismatchError], [StructuralError], [ConfigurationError],
// [ExternalServiceError], [ErrLoad]) converted with [IssueFromError].
// Every issue kind has a support code documented in error_messages.go:
//
//   - LOAD001-LOAD003: unreadable, unsupported or empty files
//   - SCH001: schema mismatch
//   - COE001: conversion warnings
//   - AGG001-AGG003: bundle aggregation
//   - GRD001, FIN001, LOC001, MAT001, CAT001, AUG001: reference data
//   - CFG001, EXT001-EXT002, PUB001, RUN001-RUN002: run-level problems
package core
