// Package tikakit extracts text and metadata from documents and detects their
// MIME type, character encoding and natural language.
//
// Parsing is delegated to an [Engine], normally Apache Tika Server through
// github.com/gobeaver/tikakit/engine/tikaserver. The [Client] forwards each
// call to the engine and returns typed results: [Metadata] for metadata and
// [Language] for language identification.
//
// # Engines and Sources
//
// Engines read documents through [Source] implementations, one per reference
// scheme, routed by a [SourceRouter]:
//
//   - Local files (github.com/gobeaver/tikakit/source/local)
//   - HTTP and HTTPS (github.com/gobeaver/tikakit/source/web)
//   - FTP (github.com/gobeaver/tikakit/source/ftp)
//   - SFTP (github.com/gobeaver/tikakit/source/sftp)
//   - Amazon S3 (github.com/gobeaver/tikakit/source/s3)
//   - Google Cloud Storage (github.com/gobeaver/tikakit/source/gcs)
//   - Azure Blob Storage (github.com/gobeaver/tikakit/source/azure)
//   - In-memory (github.com/gobeaver/tikakit/source/memory)
//
// Each package registers itself when imported.
//
// # Basic Usage
//
//	import (
//	    "github.com/gobeaver/tikakit"
//	    _ "github.com/gobeaver/tikakit/engine/tikaserver"
//	    _ "github.com/gobeaver/tikakit/source/local"
//	    _ "github.com/gobeaver/tikakit/source/web"
//	)
//
//	client, err := tikakit.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//
//	// Plain text, capped at 1000 characters
//	text, err := client.Text(ctx, "report.pdf", tikakit.WithMaxLength(1000))
//
//	// Metadata of a protected document
//	meta, err := client.Meta(ctx, "https://example.com/secret.docx", tikakit.WithPassword("pw"))
//
//	// "text/plain; charset=ISO-8859-1"
//	typeAndCharset, err := client.TypeAndCharset(ctx, "notes.txt")
//
//	// Language of in-memory text
//	lang, err := client.Language(ctx, "This is some text in English.")
//
// Every call blocks until the engine answers. Use [Go] for callback-style
// completion:
//
//	tikakit.Go(ctx, func(ctx context.Context) (string, error) {
//	    return client.Text(ctx, "report.pdf")
//	}).Then(func(text string, err error) {
//	    ...
//	})
//
// # Errors
//
// Engine failures surface as [*ProcessingError] and malformed engine payloads
// as [*SerializationError]. Errors keep the engine's diagnostic text, so an
// encrypted document fails with a message containing "document is encrypted";
// [IsEncrypted] checks for it.
//
// # Decorators
//
// [CachingEngine] caches metadata and detection results, [LoggingEngine] logs
// engine calls and [RestrictedSource] limits which references may be opened.
//
// # Configuration
//
// [New] builds a client from [Config], which loads from environment variables
// with the BEAVER_ prefix:
//
//	BEAVER_TIKAKIT_TIKA_URL=http://localhost:9998
//	BEAVER_TIKAKIT_SOURCES=file,https
//	BEAVER_TIKAKIT_CACHE_ENABLED=true
package tikakit
