/*
Package versioning manages the lifecycle of template versions.

Every template belongs to a lineage. Version 1 starts as a draft; a draft that was never
activated is edited in place. Once a version has been active it is published history:
editing it forks a new version (max+1) and the fork receives the edit. Activation
switches the single active version of a lineage atomically.

All read-then-write sequences run under the lineage lock (see package lineage) and rely
on the store's atomic primitives, so concurrent editors cannot assign the same version
number or overwrite each other's changes.
*/
package versioning
