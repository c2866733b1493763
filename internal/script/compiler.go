package script

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrMissingAuthField se devuelve cuando se pidió autenticación pero falta
// usuario, contraseña o dominio. Es el único error que Compile produce.
var ErrMissingAuthField = errors.New("script: username, password and domain are required when authentication is enabled")

// DefaultLogPrefix es el prefijo del archivo de log que escribe el script.
const DefaultLogPrefix = "ExchangePermissionScript"

// Códigos que el script escribe en su log.
const (
	CodeConnectFailed      = "CONNECT_FAILED"
	CodeNoActiveSession    = "NO_ACTIVE_SESSION"
	CodeSessionCheckFailed = "CONNECT_FAILED_SESSION_CHECK"
	CodeMalformed          = "MALFORMED_OPERATION"
	CodeReserved           = "RESERVED_PRINCIPAL"
	CodeUnknownRight       = "UNKNOWN_ACCESS_RIGHT"
	CodeOperationFailed    = "PERMISSION_OPERATION_FAILED"
)

var logPrefixRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Config configura un Compiler.
type Config struct {
	// LogPrefix: solo [A-Za-z0-9_-]; si no cumple se usa DefaultLogPrefix.
	LogPrefix string
	// Now permite fijar el reloj en tests. Default time.Now.
	Now func() time.Time
}

// Compiler genera scripts. Es seguro para uso concurrente.
type Compiler struct {
	logPrefix string
	now       func() time.Time
	validate  *validator.Validate
}

// NewCompiler crea un Compiler con la configuración dada.
func NewCompiler(cfg Config) *Compiler {
	prefix := strings.TrimSpace(cfg.LogPrefix)
	if !logPrefixRE.MatchString(prefix) {
		prefix = DefaultLogPrefix
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f.Tag.Get("json"))
	})

	return &Compiler{logPrefix: prefix, now: now, validate: v}
}

// Compile genera el script para ops. Si creds es nil, el script exige una
// sesión de Exchange Online ya abierta.
//
// Las operaciones inválidas no cortan la compilación: quedan como una línea
// de advertencia en el script y un OpResult con el estado correspondiente.
func (c *Compiler) Compile(ops []Operation, creds *Credentials) (*Script, error) {
	if creds != nil {
		// usuario y dominio en blanco cuentan como faltantes; la contraseña
		// se respeta tal cual
		trimmed := *creds
		trimmed.Username = strings.TrimSpace(trimmed.Username)
		trimmed.Domain = strings.TrimSpace(trimmed.Domain)
		if err := c.checkCredentials(trimmed); err != nil {
			return nil, err
		}
		creds = &trimmed
	}

	logFile := fmt.Sprintf("%s_%s.log", c.logPrefix, c.now().Format("20060102_150405"))

	w := &writer{}
	writePreamble(w, logFile)
	if creds != nil {
		writeConnect(w, *creds)
	} else {
		writeSessionCheck(w)
	}

	w.line(0, "# Début des modifications des permissions")
	results := make([]OpResult, 0, len(ops))
	for i, op := range ops {
		results = append(results, writeOperation(w, i, op))
	}

	writeTrailer(w)

	return &Script{
		Content: w.String(),
		LogFile: logFile,
		Results: results,
	}, nil
}

func (c *Compiler) checkCredentials(creds Credentials) error {
	err := c.validate.Struct(creds)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrMissingAuthField, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	sort.Strings(fields)
	return fmt.Errorf("%w (missing: %s)", ErrMissingAuthField, strings.Join(fields, ", "))
}

func writePreamble(w *writer, logFile string) {
	// logFile solo contiene [A-Za-z0-9_.-], es seguro dentro de comillas dobles
	w.line(0, `$LogFilePath = "$PSScriptRoot\%s"`, logFile)
	w.line(0, `Function Write-Log {`)
	w.line(1, `param([string]$Message, [string]$Type = 'INFO', [string]$ErrorCode = '')`)
	w.line(1, `$Timestamp = Get-Date -Format 'yyyy-MM-dd HH:mm:ss'`)
	w.line(1, `$LogEntry = "[$Timestamp]::[$Type]::$Message"`)
	w.line(1, `if ($ErrorCode) { $LogEntry += "::$ErrorCode" }`)
	w.line(1, `Add-Content -Path $LogFilePath -Value $LogEntry`)
	w.line(1, `Write-Host $LogEntry`)
	w.line(0, `}`)
	w.blank()
	w.log(0, "Début de l'exécution du script consolidé de gestion des permissions.", "START", "")
}

func writeConnect(w *writer, creds Credentials) {
	w.line(0, `$EncodedPassword = %s`, quote(EncodePassword(creds.Password)))
	w.line(0, `$SecurePassword = ConvertTo-SecureString ([System.Text.Encoding]::UTF8.GetString([System.Convert]::FromBase64String($EncodedPassword))) -AsPlainText -Force`)
	w.line(0, `$Credential = New-Object System.Management.Automation.PSCredential (%s, $SecurePassword)`, quote(creds.UPN()))
	w.log(0, "Tentative de connexion à Exchange Online avec les identifiants fournis...", "INFO", "")
	w.line(0, `try {`)
	w.line(1, `Connect-ExchangeOnline -Credential $Credential -ShowBanner:$false -WarningAction SilentlyContinue -ErrorAction Stop`)
	w.log(1, "Connecté à Exchange Online.", "SUCCESS", "")
	w.line(0, `} catch {`)
	w.line(1, `$ErrorMessage = $_.Exception.Message`)
	w.line(1, `Write-Log -Message "Erreur de connexion à Exchange Online. Vérifiez vos identifiants et vos permissions. Erreur: $($ErrorMessage)" -Type 'ERROR' -ErrorCode '%s'`, CodeConnectFailed)
	w.log(1, "Arrêt du script.", "FATAL", "")
	w.line(1, `exit 1`)
	w.line(0, `}`)
	w.blank()
}

func writeSessionCheck(w *writer) {
	w.log(0, "Utilisation de la session Exchange Online actuelle. Assurez-vous d'être connecté manuellement.", "INFO", "")
	w.line(0, `try {`)
	w.line(1, `$ExistingSession = Get-PSSession | Where-Object { $_.ConfigurationName -eq 'Microsoft.Exchange' -and $_.State -eq 'Opened' }`)
	w.line(1, `if (-not $ExistingSession) {`)
	w.log(2, "Aucune session Exchange Online active trouvée. Veuillez vous connecter manuellement (Connect-ExchangeOnline) avant d'exécuter ce script.", "WARNING", CodeNoActiveSession)
	w.log(2, "Arrêt du script en raison de l'absence de session active et d'identifiants non fournis.", "FATAL", "")
	w.line(2, `exit 1`)
	w.line(1, `} else {`)
	w.log(2, "Session Exchange Online active trouvée.", "SUCCESS", "")
	w.line(1, `}`)
	w.line(0, `} catch {`)
	w.line(1, `$ErrorMessage = $_.Exception.Message`)
	w.line(1, `Write-Log -Message "Erreur lors de la vérification de la session Exchange Online. Erreur: $($ErrorMessage)" -Type 'ERROR' -ErrorCode '%s'`, CodeSessionCheckFailed)
	w.log(1, "Arrêt du script.", "FATAL", "")
	w.line(1, `exit 1`)
	w.line(0, `}`)
	w.blank()
}

// writeOperation emite el bloque de una operación y devuelve su resultado.
func writeOperation(w *writer, index int, op Operation) OpResult {
	mailbox := strings.TrimSpace(op.MailboxIdentity)
	user := strings.TrimSpace(op.UserToModify)
	action := op.ActionType.Normalize()
	rights := cleanRights(op.AccessRights)

	res := OpResult{Index: index, Mailbox: mailbox, User: user}

	if op.undecodable || mailbox == "" || user == "" || !action.Valid() || len(rights) == 0 {
		res.Status = StatusMalformed
		w.log(0, fmt.Sprintf("Avertissement: Opération mal formée ignorée pour la boîte aux lettres '%s' et l'utilisateur '%s'.", mailbox, user), "WARNING", CodeMalformed)
		return res
	}
	res.Action = action

	if IsReserved(user) {
		res.Status = StatusReserved
		w.log(0, fmt.Sprintf("Info: Ignoré: %s n'est pas modifiable pour la boîte aux lettres %s.", ReservedPrincipal, mailbox), "WARNING", CodeReserved)
		return res
	}

	w.blank()
	w.line(0, "# --- Opération %d pour %s sur %s (%s) ---", index+1, oneLine(user), oneLine(mailbox), strings.ToUpper(string(action)))
	w.line(0, "$mailboxTarget = %s", quote(mailbox))
	w.line(0, "$userTarget = %s", quote(user))

	seen := make(map[string]bool, len(rights))
	for _, name := range rights {
		r, ok := lookupRight(name)
		if !ok {
			res.UnknownRights = append(res.UnknownRights, name)
			w.log(0, fmt.Sprintf("Droit d'accès inconnu '%s' ignoré pour %s sur %s.", name, user, mailbox), "WARNING", CodeUnknownRight)
			continue
		}
		if seen[r.name] {
			continue
		}
		seen[r.name] = true
		res.Rights = append(res.Rights, r.name)
		writeRight(w, r, action)
	}

	if len(res.Rights) == 0 {
		res.Status = StatusNoKnownRights
	} else {
		res.Status = StatusApplied
	}
	return res
}

// writeRight envuelve cada derecho en su propio try/catch: un fallo no
// impide los derechos ni las operaciones siguientes.
func writeRight(w *writer, r right, a Action) {
	w.line(0, `Write-Log -Message "Traitement de %s %s pour $($userTarget) sur $($mailboxTarget)" -Type 'INFO'`, a, r.name)
	w.line(0, `try {`)
	r.emit(w, a)
	w.line(0, `} catch {`)
	w.line(1, `$ErrorMessage = $_.Exception.Message`)
	w.line(1, `Write-Log -Message "Erreur lors de l'opération %s %s pour $($userTarget) sur $($mailboxTarget). Erreur: $($ErrorMessage)" -Type 'ERROR' -ErrorCode '%s'`, a, r.name, CodeOperationFailed)
	w.line(0, `}`)
}

func writeTrailer(w *writer) {
	w.blank()
	w.log(0, "Toutes les opérations demandées ont été traitées.", "INFO", "")
	w.log(0, "Déconnexion d'Exchange Online.", "INFO", "")
	w.line(0, `Disconnect-ExchangeOnline -Confirm:$false -WarningAction SilentlyContinue`)
	w.log(0, "Script terminé.", "END", "")
}

func cleanRights(in Rights) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// oneLine evita que un valor con saltos de línea rompa un comentario.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func jsonName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}
