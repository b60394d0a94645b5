// Package loam loads template drafts from a directory of Markdown (frontmatter),
// YAML or JSON documents using github.com/aretw0/loam.
package loam
