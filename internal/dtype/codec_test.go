package dtype

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCodec(t *testing.T) {
	datadriven.RunTest(t, "testdata/codec", func(t *testing.T, td *datadriven.TestData) string {
		order := OrderLittle
		for _, arg := range td.CmdArgs {
			if arg.Key == "order" {
				var err error
				order, err = ParseByteOrder(arg.Vals[0])
				require.NoError(t, err)
			}
		}

		var desc any
		require.NoError(t, yaml.Unmarshal([]byte(td.Input), &desc))

		typ, err := Decode(desc, order)
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}

		switch td.Cmd {
		case "decode":
			return fmt.Sprintf("%s size=%d\n", typ, typ.ItemSize())

		case "roundtrip":
			encoded, resolved, err := Encode(typ, true, OrderUnset)
			require.NoError(t, err)
			again, err := Decode(encoded, resolved)
			require.NoError(t, err)
			require.True(t, typ.Equal(again), "%s != %s", typ, again)
			return fmt.Sprintf("%v %s\n", encoded, resolved)

		default:
			return fmt.Sprintf("unknown command: %s\n", td.Cmd)
		}
	})
}
