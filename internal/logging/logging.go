// Package logging contains helpers to write leveled messages to the system logger.
package logging

import (
	"fmt"
	"log"
)

// PrintlnInfo writes the given value with the INFO level.
func PrintlnInfo(logger *log.Logger, v interface{}) {
	logger.Println(fmt.Sprint("INFO ", v))
}

// PrintlnWarn writes the given value with the WARN level.
func PrintlnWarn(logger *log.Logger, v interface{}) {
	logger.Println(fmt.Sprint("WARN ", v))
}

// PrintlnError writes the given value with the ERROR level.
func PrintlnError(logger *log.Logger, v interface{}) {
	logger.Println(fmt.Sprint("ERROR ", v))
}
