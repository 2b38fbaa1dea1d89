// Package validate classifies candidate strings as emails, phones and URLs.
//
// Every function is pure and safe for concurrent use.
package validate
