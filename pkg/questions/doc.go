// Package questions implements structural editing of a template's questions:
// add, update, delete and reorder.
//
// Every function works on a copy and returns a new template; the input is never
// modified, so a rejected edit leaves nothing half-applied. Published versions are
// refused with domain.ErrTemplateImmutable. Callers fork a new version first.
package questions
