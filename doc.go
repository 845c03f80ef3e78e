// Package kgclient is a Go client for a revisioned JSON-LD knowledge graph service.
//
// The client manages organizations, domains, schemas, contexts and instances over the
// service REST API, resolves symbolic instance references in upload templates and uploads
// template files idempotently.
//
// # Repositories
//
//	client, _ := kgclient.New(ctx,
//	    kgclient.WithEndpoint("https://kg.example.org"),
//	    kgclient.WithPrefix("v0"),
//	    kgclient.WithToken(token),
//	)
//	defer client.Close()
//	schema, _ := client.Schemas().Read(ctx, "hbp", "core", "dataset", "v1.0.0", 0)
//
// # Uploads
//
//	_, _ = client.UploadSchema(ctx, "schemas/hbp/core/dataset/v1.0.0.json",
//	    kgclient.SchemaOptions{ForceDomainCreation: true, Publish: true})
//	res, _ := client.UploadInstance(ctx, "data/hbp/core/dataset/v1.0.0/ds-1.json", true)
//	fmt.Println(res.Action) // created, updated or skipped
//
// Templates may reference other instances with {{resolve /org/dom/name/v1?filter=...}},
// {{resolve_id ...}} or {{resolve_by_identifier /org/dom/name/v1 identifier}}; resolved ids are
// memoized in process and, with WithRedisCache, shared across uploaders.
package kgclient
