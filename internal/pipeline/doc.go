// Package pipeline runs site crawls concurrently and aggregates the results.
//
// The Scheduler dispatches one crawl per seed URL through an errgroup
// bounded by the concurrency limit. A crawl keeps its slot until it has
// finished and its release delay has passed. Finished records go to an
// Aggregator, which restores seed order and keeps the run statistics.
package pipeline
