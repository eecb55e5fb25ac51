// Package topology answers structural questions about a workflow graph:
// which nodes are upstream of a node, and in which order a set of nodes can run.
//
// Edges whose endpoints are not nodes of the graph are ignored. Cycles never
// cause a loop; their members are reported instead of ordered.
package topology
