// Package providers holds the provider specific halves of the login
// strategies: endpoint URLs and profile normalization.
package providers

import "flyme-auth/internal/auth/strategy"

var _ strategy.Provider = (*FlymeProvider)(nil)
