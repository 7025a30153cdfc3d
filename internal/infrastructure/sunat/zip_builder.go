package sunat

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CompressXMLToZip empaqueta el XML firmado en un ZIP en memoria con una única entrada deflate.
// SUNAT exige que el nombre de la entrada sea {RUC}-{TIPO}-{SERIE}-{NUMERO}.xml.
func CompressXMLToZip(xmlBytes []byte, xmlFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.CreateHeader(&zip.FileHeader{Name: xmlFilename, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlFilename, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// FileNames genera los nombres exigidos por SUNAT para el XML interno y el ZIP.
// Formato: {RUC}-{TIPO}-{SERIE}-{NUMERO}, ej. 20000000001-01-F001-15.
func FileNames(ruc, typeCode, series string, number int64) (xmlName, zipName string) {
	base := strings.Join([]string{
		strings.TrimSpace(ruc),
		strings.TrimSpace(typeCode),
		strings.ToUpper(strings.TrimSpace(series)),
		strconv.FormatInt(number, 10),
	}, "-")
	return base + ".xml", base + ".zip"
}
