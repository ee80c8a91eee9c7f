// Command stgdump runs the runtime's hand-built example programs and
// prints the final register and heap state each one leaves behind,
// mirroring tetratelabs-wazero's cmd/wazero: a tiny main wrapping the
// public API, with no logic of its own beyond wiring.
package main

import (
	"fmt"
	"os"

	"github.com/dmjio/stgrts"
	"github.com/dmjio/stgrts/examples"
	"github.com/dmjio/stgrts/internal/closure"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig().WithHeapSize(256))
	defer rt.Close()

	fmt.Println("concat(\"foo\", \"bar\") =", examples.ConcatFooBar(rt))
	fmt.Println("concat(literal \"foo\", heap \"bar\") =", examples.ConcatLiteralAndHeap(rt))

	gc := stgrts.NewRuntime(stgrts.NewRuntimeConfig().WithHeapSize(64))
	defer gc.Close()
	fmt.Println("concat under pressure =", examples.ConcatUnderPressure(gc, "ab", 8))

	thunkRT := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer thunkRT.Close()
	thunkAddr := examples.CountdownThunk(thunkRT)
	fmt.Printf("countdown thunk %d updated to info table %d\n", thunkAddr, closure.InfoTableAt(thunkRT.Heap(), thunkAddr))

	papRT := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer papRT.Close()
	viaPAP, direct := examples.PartialApplication(papRT, "foo", "bar", "baz")
	fmt.Printf("partial application: %q (direct: %q)\n", viaPAP, direct)

	growthRT := stgrts.NewRuntime(stgrts.NewRuntimeConfig().WithHeapSize(128))
	defer growthRT.Close()
	fmt.Println("root preserved across growth =", examples.GrowRootAcrossCollection(growthRT, 128))

	return nil
}
