// Package extract turns rendered directory pages into candidate records and
// follow-up targets.
//
// Every method of Extractor is a pure function of a dom.Document and a
// model.TraversalContext: no network access, no persistence, no shared
// state. Seen-sets used to drop duplicate links live inside a single call.
//
// Selectors are grouped in Rules. Fields that list several selectors form
// fallback chains where the first non-empty value wins. DefaultRules matches
// the markup of optoviki.kz; a YAML config file can override any field.
package extract
