// Package platform classifies submitted URLs into the closed set of
// supported platforms. Matchers are pure predicates evaluated in a fixed
// priority order; anything that matches nothing is Unknown and rejected
// at submission time.
package platform
