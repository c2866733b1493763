// Package script compila una lista de cambios de permisos sobre buzones en un
// script PowerShell para Exchange Online.
//
// El script resultante no se ejecuta aquí: es texto que el administrador
// descarga y corre en su propia sesión.
package script

import (
	"encoding/json"
	"strings"
)

// Action es el tipo de cambio que se aplica a un permiso.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Normalize devuelve la acción en minúsculas y sin espacios.
func (a Action) Normalize() Action {
	return Action(strings.ToLower(strings.TrimSpace(string(a))))
}

// Valid indica si la acción (normalizada) es add o remove.
func (a Action) Valid() bool {
	switch a.Normalize() {
	case ActionAdd, ActionRemove:
		return true
	}
	return false
}

// ReservedPrincipal es la identidad integrada que Exchange no permite
// modificar directamente.
const ReservedPrincipal = `NT AUTHORITY\SELF`

// IsReserved compara sin distinguir mayúsculas ni espacios exteriores.
func IsReserved(user string) bool {
	return strings.EqualFold(strings.TrimSpace(user), ReservedPrincipal)
}

// Rights es la lista ordenada de derechos de una operación. En JSON acepta
// tanto un array como un string separado por comas.
type Rights []string

// UnmarshalJSON acepta ["FullAccess","SendAs"] o "FullAccess, SendAs".
func (r *Rights) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*r = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseRights(s)
	return nil
}

// ParseRights separa una celda de CSV del tipo "FullAccess, SendAs" (también
// acepta ';' y '|').
func ParseRights(s string) Rights {
	fields := strings.FieldsFunc(s, func(c rune) bool {
		return c == ',' || c == ';' || c == '|'
	})
	out := make(Rights, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Operation es un cambio de permisos pedido para un usuario sobre un buzón.
type Operation struct {
	MailboxIdentity string `json:"mailboxIdentity"`
	UserToModify    string `json:"userToModify"`
	ActionType      Action `json:"actionType"`
	AccessRights    Rights `json:"accessRights"`

	// undecodable marca una entrada JSON con tipos inválidos; se compila
	// siempre como mal formada.
	undecodable bool
}

// Operations decodifica la lista entrada por entrada. Una entrada con tipos
// inválidos no invalida a las demás: queda como operación mal formada.
type Operations []Operation

// UnmarshalJSON exige un array; el contenido de cada elemento es tolerante.
func (ops *Operations) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Operations, 0, len(raw))
	for _, item := range raw {
		var op Operation
		if err := json.Unmarshal(item, &op); err != nil {
			// lo que sí se pudo leer se conserva para el mensaje de aviso
			op.undecodable = true
		}
		out = append(out, op)
	}
	*ops = out
	return nil
}

// Credentials habilitan el bloque de conexión con usuario y contraseña.
// Nunca se persisten.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Domain   string `json:"domain" validate:"required"`
}

// UPN arma el user principal name: si el usuario ya trae '@' se usa tal cual.
func (c Credentials) UPN() string {
	u := strings.TrimSpace(c.Username)
	if strings.Contains(u, "@") {
		return u
	}
	return u + "@" + strings.TrimPrefix(strings.TrimSpace(c.Domain), "@")
}

// Status es el resultado de compilar una operación.
type Status string

const (
	StatusApplied       Status = "applied"
	StatusMalformed     Status = "skipped_malformed"
	StatusReserved      Status = "skipped_reserved"
	StatusNoKnownRights Status = "skipped_unknown_rights"
)

// OpResult describe qué se emitió para la operación Index de la entrada.
type OpResult struct {
	Index         int      `json:"index"`
	Mailbox       string   `json:"mailbox"`
	User          string   `json:"user"`
	Action        Action   `json:"action,omitempty"`
	Status        Status   `json:"status"`
	Rights        []string `json:"rights,omitempty"`
	UnknownRights []string `json:"unknown_rights,omitempty"`
}

// Script es el documento generado.
type Script struct {
	Content string
	// LogFile es el nombre del log que el script escribirá junto a sí mismo.
	LogFile string
	Results []OpResult
}

// Count devuelve cuántas operaciones terminaron con el estado dado.
func (s *Script) Count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}
