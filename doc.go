// Package datamodel is a statement lifecycle engine for relational data
// access. A statement is created against a declared source, refined with
// clause arguments, compiled once into SQL, prepared, executed, and finally
// streamed row by row, each row passing through registered column handlers.
//
// The root package is a thin facade over the building blocks:
//
//	schema     declares schemas, tables, joins and column types
//	statement  drives one select through its lifecycle
//	sqlgen     renders structured clauses into dialect-specific SQL
//	driver     abstracts database access, with a database/sql adapter
//	result     materializes finished statements into result shapes
//
// Most callers only need Select and FetchRow:
//
//	drv, err := driver.Open("sqlite", ":memory:")
//	s := schema.New("sqlite", drv)
//	emp := s.Table("Employee", "T_Employee", "emp_id")
//
//	rows, err := datamodel.Select(emp, datamodel.Args{
//		datamodel.Where:   sqlgen.Eq("dpt_id", 10),
//		datamodel.OrderBy: "name",
//	})
//
//	row, err := datamodel.FetchRow(emp, 42)
//
// The shape of the Select result follows the result_as clause, "rows" by
// default; see the result package for the available shapes.
package datamodel
