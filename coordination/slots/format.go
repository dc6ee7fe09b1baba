// utilitário pequeno para formatação rápida/consistente de contagens em headers/corpo.

package slots

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }
