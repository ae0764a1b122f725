// Package crawler defines the fetch contract shared by discovery and the
// listing workers: the Fetcher interface, the response it returns and the
// StatusError used for non-2xx answers.
package crawler
