package http

import (
	"fmt"
	"log/slog"
	gohttp "net/http"
	"regexp"
	"strconv"

	"github.com/paulmach/orb/maptile"
	"github.com/tilezen/go-tileimport/tilepack"
)

var (
	tileRegex = regexp.MustCompile(`\/tiles\/(\d+)\/(\d+)\/(\d+)\.[A-Za-z]+$`)
)

// TilesHandler serves /tiles/{z}/{x}/{y}.{ext} from reader. The extension is
// ignored; the content type is sniffed from the stored image.
func TilesHandler(reader tilepack.MbtilesReader) gohttp.HandlerFunc {

	return func(w gohttp.ResponseWriter, r *gohttp.Request) {
		requestedTile, err := parseTileFromPath(r.URL.Path)
		if err != nil {
			gohttp.NotFound(w, r)
			return
		}

		result, err := reader.GetTile(requestedTile)
		if err != nil {
			slog.Error("Error getting tile", "tile", requestedTile, "error", err)
			gohttp.Error(w, gohttp.StatusText(gohttp.StatusInternalServerError), gohttp.StatusInternalServerError)
			return
		}

		if result.Data == nil {
			gohttp.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", gohttp.DetectContentType(*result.Data))
		w.Header().Set("Content-Length", strconv.Itoa(len(*result.Data)))
		w.Write(*result.Data)
	}
}

func parseTileFromPath(url string) (maptile.Tile, error) {
	match := tileRegex.FindStringSubmatch(url)
	if match == nil {
		return maptile.Tile{}, fmt.Errorf("invalid tile path")
	}

	z, err := strconv.ParseUint(match[1], 10, 8)
	if err != nil {
		return maptile.Tile{}, err
	}
	x, err := strconv.ParseUint(match[2], 10, 32)
	if err != nil {
		return maptile.Tile{}, err
	}
	y, err := strconv.ParseUint(match[3], 10, 32)
	if err != nil {
		return maptile.Tile{}, err
	}

	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}
