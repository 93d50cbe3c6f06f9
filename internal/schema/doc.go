// Package schema turns schema text into the generic tree the compiler reads.
//
// The tree is a faithful, order-preserving image of the source document:
// mappings keep their entries in source order (including duplicate keys,
// which the compiler reports), sequences keep their items, and every node
// carries its source position. Identifiers and string scalars are NFC
// normalized while the tree is built.
//
// Two front-ends produce the tree:
//   - ParseYAML reads YAML (and therefore JSON) through yaml.v3 nodes.
//   - ParseCUE / FromCUE read CUE through the CUE Go API.
//
// Load picks the front-end from the file extension.
package schema
