// Package dataprocessing implements the analytical core over groundwater
// quality records: schema normalization of raw tabular files into an
// in-memory dataset, basin/year filtering, and grouped descriptive
// statistics.
//
// All operations are pure functions of their inputs; the dataset is loaded
// once and treated as read-only for the remainder of the session.
package dataprocessing
