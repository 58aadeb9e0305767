// Package db embeds the gateway's database schema.
package db

import _ "embed"

// Schema contains the DDL for the guest cart and voucher corpus tables.
//
//go:embed migrations/001_schema.sql
var Schema string
