// Package validator lints template definitions and reports every problem at once.
package validator
