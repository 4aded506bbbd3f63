package tenant

// Document is an arbitrary tenant-supplied record. Stores never enforce a schema on it.
type Document map[string]interface{}

// IdentityField is the key under which stores expose a document's store-assigned identity.
const IdentityField = "_id"

// WithoutIdentity returns a shallow copy of the document minus its store-assigned identity.
func (d Document) WithoutIdentity() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == IdentityField {
			continue
		}
		out[k] = v
	}
	return out
}
