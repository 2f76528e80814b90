// Package profile computes statistical and structural insights over sampled
// table contents: per-table overviews, data quality metrics, numeric
// distributions, duplicate and outlier patterns, relationship heuristics and
// a prioritized list of recommendations.
//
// All functions are pure. Row indices in results refer to sample order.
package profile
