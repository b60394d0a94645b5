// Package dto holds the authoring formats shared by the file parser and the catalog
// loader.
package dto
