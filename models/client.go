package models

import "github.com/tidwall/gjson"

// Client is only read embedded in an order; upstream has no client endpoint
// this gateway consumes.
type Client struct {
	ID       *int64  `json:"id"`
	Nombre   *string `json:"nombre"`
	Apellido *string `json:"apellido"`
	Dni      *string `json:"dni"`
	Telefono *string `json:"telefono"`
	Email    *string `json:"email"`
}

var clientFields = struct {
	ID, Nombre, Apellido, Dni, Telefono, Email spellings
}{
	ID:       spellings{"id"},
	Nombre:   spellings{"nombre"},
	Apellido: spellings{"apellido"},
	Dni:      spellings{"dni"},
	Telefono: spellings{"telefono"},
	Email:    spellings{"email"},
}

func (c *Client) decode(r gjson.Result) {
	c.ID, _ = clientFields.ID.idOf(r)
	c.Nombre = clientFields.Nombre.stringOf(r)
	c.Apellido = clientFields.Apellido.stringOf(r)
	c.Dni = clientFields.Dni.stringOf(r)
	c.Telefono = clientFields.Telefono.stringOf(r)
	c.Email = clientFields.Email.stringOf(r)
}

func (c *Client) UnmarshalJSON(b []byte) error { return unmarshalEntity(b, c) }
