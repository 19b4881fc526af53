// Package options attaches option contracts to reconciled instruments.
//
// Exchange options are matched to underlyings by the 4-character root of
// the option symbol. A root shared by several share classes (TASA3, TASA4)
// attaches the same contract to each of them. For every underlying only the
// nearest non-expired expiry of each type is kept, chosen separately for
// calls and puts. Instruments left without exchange options fall back to
// the provider chain.
package options
