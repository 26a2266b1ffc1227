// Package booking persists appointments and bookable service offerings.
// Its count queries back the usage counters that meter plan limits:
// appointments per calendar month and active services per professional.
package booking
