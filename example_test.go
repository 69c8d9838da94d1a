package tikakit_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gobeaver/tikakit"
	"github.com/gobeaver/tikakit/source/memory"
)

func ExampleSourceRouter() {
	ctx := context.Background()

	// Create a router
	router := tikakit.NewSourceRouter()

	// Mount sources by scheme; a longer prefix takes precedence
	inbox := memory.New() // Using memory for example; use local.New() in production
	archive := memory.New()

	_ = inbox.Put("docs/note.txt", []byte("inbox content"), "text/plain")
	_ = archive.Put("docs/2024/note.txt", []byte("archive content"), "text/plain")

	_ = router.Mount("mem", inbox)
	_ = router.Mount("mem://docs/2024", archive)

	for _, ref := range []string{"mem://docs/note.txt", "mem://docs/2024/note.txt"} {
		doc, err := router.Open(ctx, ref)
		if err != nil {
			fmt.Println(err)
			continue
		}
		data, _ := io.ReadAll(doc.Body)
		doc.Close()
		fmt.Printf("%s: %s\n", doc.Name, data)
	}
	// Output:
	// note.txt: inbox content
	// note.txt: archive content
}

func ExampleNewRestrictedSource() {
	ctx := context.Background()

	docs := memory.New()
	_ = docs.Put("public/readme.txt", []byte("hello"), "")
	_ = docs.Put("private/keys.txt", []byte("secret"), "")

	restricted, _ := tikakit.NewRestrictedSource(docs, tikakit.Policy{
		AllowPatterns: []string{"mem://public/**"},
	})

	for _, raw := range []string{"mem://public/readme.txt", "mem://private/keys.txt"} {
		ref, _ := tikakit.ParseReference(raw)
		_, err := restricted.Open(ctx, ref)
		fmt.Printf("%s allowed: %v\n", raw, !tikakit.IsNotAllowed(err))
	}
	// Output:
	// mem://public/readme.txt allowed: true
	// mem://private/keys.txt allowed: false
}

func ExampleParseReference() {
	for _, raw := range []string{"/srv/docs/report.pdf", "https://example.com/files/Q1%20plan.docx", "ftp://ftp.example.org/pub/readme"} {
		ref, _ := tikakit.ParseReference(raw)
		fmt.Printf("%s %s %s\n", ref.Scheme, ref.Name(), ref.Canonical())
	}
	// Output:
	// file report.pdf file:///srv/docs/report.pdf
	// https Q1 plan.docx https://example.com/files/Q1 plan.docx
	// ftp readme ftp://ftp.example.org/pub/readme
}

func ExampleDecodeMetadata() {
	meta, err := tikakit.DecodeMetadata([]byte(`{"Content-Type":"application/pdf","dc:creator":["Ada","Grace"]}`))
	if err != nil {
		panic(err)
	}
	fmt.Println(meta.ContentType())
	fmt.Println(strings.Join(meta.Values("dc:creator"), " and "))

	_, err = tikakit.DecodeMetadata([]byte(`{"broken"`))
	fmt.Println(errors.Is(err, tikakit.ErrSerialization))
	// Output:
	// application/pdf
	// Ada and Grace
	// true
}

func ExampleOptions_UnmarshalJSON() {
	var opts tikakit.Options
	_ = json.Unmarshal([]byte(`{"maxLength": 500, "X-Tika-PDFOcrStrategy": "no_ocr"}`), &opts)

	fmt.Println(opts.MaxLength)
	fmt.Println(opts.Extra["X-Tika-PDFOcrStrategy"])
	// Output:
	// 500
	// no_ocr
}

func ExampleGo() {
	ctx := context.Background()

	future := tikakit.Go(ctx, func(ctx context.Context) (int, error) {
		return tikakit.RuneCount("héllo"), nil
	})

	n, err := future.Wait()
	fmt.Println(n, err)
	// Output:
	// 5 <nil>
}
