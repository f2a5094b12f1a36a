// Package directus translates provider-independent collection queries into
// Directus REST calls and maps Directus responses back into the uniform
// envelope.
//
// # Outbound request
//
//	GET {endpoint}/items/{collection}?fields=*.*.*&meta=*&limit=10&offset=0&filter={...}
//	Authorization: Bearer {token}
//
// fields is "*.*.*" (three levels of relations) by default and "*" when the
// caller asks to exclude nulls. meta=* is always requested so the normalizer
// can read filter_count.
//
// # Pagination
//
// totalItems comes from meta.filter_count when present. Without it the
// normalizer falls back to the number of records in the page, so callers
// can detect that degraded mode by comparing totalItems to limit. The
// current page is recomputed from the offset actually sent.
package directus
