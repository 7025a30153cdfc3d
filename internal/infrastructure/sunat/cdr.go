package sunat

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
)

var (
	codeAliases        = []string{"ResponseCode", "responseCode", "Code", "codigo", "Codigo"}
	descriptionAliases = []string{"Description", "description", "Descripcion", "descripcion", "Mensaje", "Message"}
)

// CDR resultado de interpretar la Constancia de Recepción.
type CDR struct {
	Code         *string // nil si no se pudo leer
	Description  string
	Observations []string
	XML          []byte // XML del CDR (ya descomprimido) o los bytes crudos
	Hash         string // SHA-256 hex del XML canónico; vacío si no se pudo parsear
}

// ParseCDR descomprime (si es ZIP) y lee código, descripción y observaciones del CDR.
// Nunca falla: si el XML no es legible devuelve Code nil conservando los bytes.
func ParseCDR(raw []byte) CDR {
	data := unzipFirstXML(raw)
	out := CDR{XML: data}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil || doc.Root() == nil {
		return out
	}
	root := doc.Root()

	if code := findText(root, codeAliases); code != "" {
		out.Code = &code
	}
	out.Description = findText(root, descriptionAliases)
	for _, n := range root.FindElements(".//Note") {
		if txt := strings.TrimSpace(n.Text()); txt != "" {
			out.Observations = append(out.Observations, txt)
		}
	}
	if canon, err := canonicalizeXML(data); err == nil {
		sum := sha256.Sum256(canon)
		out.Hash = hex.EncodeToString(sum[:])
	}
	return out
}

// ClassifyCode "0" → aceptado, "2xxx" → aceptado con observaciones, resto (incluido nil) → rechazado.
func ClassifyCode(code *string) string {
	if code == nil {
		return entity.StatusRejected
	}
	c := strings.TrimSpace(*code)
	switch {
	case c == "0":
		return entity.StatusAccepted
	case strings.HasPrefix(c, "2"):
		return entity.StatusAcceptedWithObservations
	}
	return entity.StatusRejected
}

// ToReceipt convierte el CDR en la entidad persistible.
func (c CDR) ToReceipt(documentID string) *entity.Receipt {
	return &entity.Receipt{
		DocumentID:   documentID,
		Code:         c.Code,
		Description:  c.Description,
		Observations: c.Observations,
		RawCDR:       c.XML,
		Hash:         c.Hash,
	}
}

// unzipFirstXML primera entrada .xml del ZIP, o la primera entrada; si no es ZIP devuelve raw.
func unzipFirstXML(raw []byte) []byte {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil || len(zr.File) == 0 {
		return raw
	}
	pick := zr.File[0]
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			pick = f
			break
		}
	}
	rc, err := pick.Open()
	if err != nil {
		return raw
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 10<<20))
	if err != nil {
		return raw
	}
	return data
}

// findText busca por nombre local (sin importar namespace) probando cada alias en orden.
func findText(root *etree.Element, aliases []string) string {
	for _, name := range aliases {
		if root.Tag == name {
			if t := strings.TrimSpace(root.Text()); t != "" {
				return t
			}
		}
		for _, el := range root.FindElements(".//" + name) {
			if t := strings.TrimSpace(el.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}

// charsetReader soporta CDRs declarados en ISO-8859-1 / Windows-1252.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("cdr: charset no soportado %q", label)
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
