// Package forest implements the random forest classifier used by the
// trainer stage, together with the split and scoring helpers it needs.
//
// Trees are CART classifiers with weighted Gini impurity and numeric
// threshold splits. Missing values (NaN) sort before every number and are
// routed to the left child. A Forest fits bootstrapped trees concurrently
// with errgroup and predicts by averaging class probabilities.
package forest
