package api

import (
	"embed"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Embedded placeholder dashboard assets; a real frontend build would
// replace dist/browser/* before compiling Go, the same layout the
// retrieval pack's own SPA mount expects.
//
//go:embed dist/browser/*
var embeddedUI embed.FS

func getEmbedFS() static.ServeFileSystem {
	fs, err := static.EmbedFolder(embeddedUI, "dist/browser")
	if err != nil {
		panic("netcore: failed to get embedded UI filesystem: " + err.Error())
	}
	return fs
}

// mountSPA serves the embedded dashboard (or its placeholder) for
// everything outside /api and /swagger.
func mountSPA(r *gin.Engine) {
	distFS := getEmbedFS()
	r.Use(static.Serve("/", distFS))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") || strings.HasPrefix(c.Request.RequestURI, "/swagger") {
			return
		}
		index, err := distFS.Open("index.html")
		if err != nil {
			log.Printf("netcore: failed to open index.html: %v", err)
			c.Status(http.StatusNotFound)
			return
		}
		defer index.Close()
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(c.Writer, c.Request, "index.html", time.Time{}, index)
	})
}
