// Package simplefeed provides a reusable library for a social-feed
// backend: account signup/login with bearer tokens, image-attached
// posts with owner-only mutation, paginated listing, and live
// post-change notifications through a pluggable event sink.
//
// It exposes a single Service interface that orchestrates validation,
// authorization, persistence and notification. Implementations of
// repositories (memory, Postgres) and image stores (memory, filesystem,
// S3) are provided under subpackages, as is a websocket fan-out hub
// that satisfies the EventSink interface.
package simplefeed
