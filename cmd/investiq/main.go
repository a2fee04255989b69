// Command investiq es el wizard de apertura de cuenta por línea de comandos.
// El estado del wizard vive del lado del cliente (archivo local o cache) y
// todo colaborador externo se alcanza a través del servicio HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
