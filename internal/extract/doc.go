// Package extract finds contact information in page markup.
//
// Engine extracts emails, phone numbers and a page title. SocialResolver
// extracts at most one profile link per social platform. Both compile their
// patterns once at construction time, so a malformed pattern fails before
// any page is processed. Both are safe for concurrent use.
package extract
