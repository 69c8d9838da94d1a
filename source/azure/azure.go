// Package azure opens "azblob://container/blob" references from Azure Blob
// Storage.
package azure

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/gobeaver/tikakit"
)

// Scheme is the reference scheme served by this package
const Scheme = "azblob"

// API is the subset of the azblob client the source uses
type API interface {
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

// Adapter opens blobs of one storage account
type Adapter struct {
	client API
}

// New creates an Azure Blob Storage source
func New(client API) *Adapter {
	return &Adapter{client: client}
}

// Open implements tikakit.Source. The reference host is the container and
// the path, without its leading slash, is the blob name.
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	containerName := ref.Host()
	blobName := strings.TrimPrefix(ref.Path, "/")
	if containerName == "" || blobName == "" {
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: errors.New("reference must name a container and a blob")}
	}

	resp, err := a.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, mapAzureError(ref.Raw, err)
	}

	doc := &tikakit.Document{
		Name: path.Base(blobName),
		Size: -1,
		Body: resp.Body,
	}
	if resp.ContentLength != nil {
		doc.Size = *resp.ContentLength
	}
	if resp.ContentType != nil {
		doc.ContentType = *resp.ContentType
	}
	return doc, nil
}

func mapAzureError(ref string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return &tikakit.ProcessingError{
			Op:  "open",
			Ref: ref,
			Err: tikakit.ErrNotExist,
		}
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return &tikakit.ProcessingError{
			Op:  "open",
			Ref: ref,
			Err: tikakit.ErrNotExist,
		}
	}

	return &tikakit.ProcessingError{
		Op:  "open",
		Ref: ref,
		Err: err,
	}
}

var _ tikakit.Source = (*Adapter)(nil)
