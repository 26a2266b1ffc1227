// Package email sends transactional emails through Postmark, with a
// file-based sender for local development. The billing service uses it
// for dunning notices when an invoice payment fails.
package email
