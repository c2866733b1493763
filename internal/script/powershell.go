package script

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PowerShell trata también las comillas tipográficas como delimitadores de
// un literal simple, así que todas se duplican.
var singleQuoteEscaper = strings.NewReplacer(
	"'", "''",
	"‘", "‘‘",
	"’", "’’",
	"‚", "‚‚",
	"‛", "‛‛",
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
)

// quote devuelve s como literal de comilla simple (sin expansión de variables).
func quote(s string) string {
	return "'" + singleQuoteEscaper.Replace(s) + "'"
}

// EncodePassword ofusca la contraseña en base64. No es cifrado.
func EncodePassword(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// right describe cómo se emite un derecho conocido.
type right struct {
	name string
	emit func(w *writer, a Action)
}

// knownRights, por nombre en minúsculas.
var knownRights = map[string]right{
	"fullaccess":     {"FullAccess", emitFullAccess},
	"sendas":         {"SendAs", emitSendAs},
	"sendonbehalf":   {"SendOnBehalf", emitSendOnBehalf},
	"sendonbehalfto": {"SendOnBehalf", emitSendOnBehalf},
}

func lookupRight(name string) (right, bool) {
	r, ok := knownRights[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

func successLine(w *writer, indent int, rightName string, a Action) {
	verb := "ajoutée"
	if a == ActionRemove {
		verb = "supprimée"
	}
	w.line(indent, `Write-Log -Message "Permission %s %s pour $($userTarget) sur $($mailboxTarget)." -Type 'SUCCESS'`, rightName, verb)
}

func emitFullAccess(w *writer, a Action) {
	if a == ActionAdd {
		w.line(1, `Add-MailboxPermission -Identity $mailboxTarget -User $userTarget -AccessRights FullAccess -InheritanceType All -Confirm:$false -ErrorAction Stop`)
	} else {
		w.line(1, `Remove-MailboxPermission -Identity $mailboxTarget -User $userTarget -AccessRights FullAccess -InheritanceType All -Confirm:$false -ErrorAction Stop`)
	}
	successLine(w, 1, "FullAccess", a)
}

func emitSendAs(w *writer, a Action) {
	w.line(1, `$MailboxDisplayName = (Get-EXOMailbox -Identity $mailboxTarget -ErrorAction SilentlyContinue | Select-Object -ExpandProperty DisplayName)`)
	w.line(1, `if ($null -ne $MailboxDisplayName) {`)
	if a == ActionAdd {
		w.line(2, `Add-RecipientPermission -Identity $MailboxDisplayName -Trustee $userTarget -AccessRights SendAs -Confirm:$false -ErrorAction Stop`)
	} else {
		w.line(2, `Remove-RecipientPermission -Identity $MailboxDisplayName -Trustee $userTarget -AccessRights SendAs -Confirm:$false -ErrorAction Stop`)
	}
	successLine(w, 2, "SendAs", a)
	w.line(1, `} else {`)
	w.line(2, `Write-Log -Message "Boîte aux lettres $($mailboxTarget) non trouvée (DisplayName) pour la gestion de la permission SendAs." -Type 'WARNING' -ErrorCode 'MAILBOX_NOT_FOUND_SENDAS'`)
	w.line(1, `}`)
}

func emitSendOnBehalf(w *writer, a Action) {
	key := "Add"
	if a == ActionRemove {
		key = "Remove"
	}
	w.line(1, `Set-Mailbox -Identity $mailboxTarget -GrantSendOnBehalfTo @{%s=$userTarget} -Confirm:$false -ErrorAction Stop`, key)
	successLine(w, 1, "SendOnBehalf", a)
}

// writer acumula líneas con indentación de 4 espacios.
type writer struct {
	b strings.Builder
}

func (w *writer) line(indent int, format string, args ...any) {
	w.b.WriteString(strings.Repeat("    ", indent))
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
}

func (w *writer) blank() { w.b.WriteByte('\n') }

// log emite un Write-Log con mensaje literal (sin expansión).
func (w *writer) log(indent int, msg, typ, code string) {
	if code == "" {
		w.line(indent, "Write-Log -Message %s -Type %s", quote(msg), quote(typ))
		return
	}
	w.line(indent, "Write-Log -Message %s -Type %s -ErrorCode %s", quote(msg), quote(typ), quote(code))
}

func (w *writer) String() string { return w.b.String() }
