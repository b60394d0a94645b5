// Package compiler turns template definition files into draft templates.
package compiler
