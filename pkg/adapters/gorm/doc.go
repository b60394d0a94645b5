// Package gorm implements ports.TemplateStore with GORM on PostgreSQL.
//
// Rows keep the searchable header columns next to a JSON body holding the whole
// template. Activation switches run in a transaction that locks the lineage rows
// with SELECT ... FOR UPDATE.
package gorm
