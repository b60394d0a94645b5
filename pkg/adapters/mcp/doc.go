// Package mcp exposes the formwork engine to agents as Model Context Protocol tools.
package mcp
