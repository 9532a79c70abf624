// Package pipeline runs the panel build as a linear sequence of stages:
// load raw inputs, aggregate, rank, collapse the tail, annualize, derive
// ratios, align macro rates, persist. Each stage either completes or fails
// the whole run; the output artifact is only written by the terminal stage,
// so a failed run never leaves a partial panel behind.
package pipeline
