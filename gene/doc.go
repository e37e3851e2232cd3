// Package gene turns raw feature records into a stable, de-duplicated gene
// index: canonical uppercase symbols, dense integer gene ids, and a species
// classification used by cross-species panel mapping downstream.
package gene
