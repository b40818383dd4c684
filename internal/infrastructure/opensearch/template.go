// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package opensearch

const queryTransfersSource = `{
  "size": {{ .PageSize }},
  "query": {
    "bool": {
      "filter": [
        {
          "term": {
            "principal": {{ .Principal | quote }}
          }
        }
      ]
    }
  }
  {{- if .SearchAfter }},
  "search_after": {{ .SearchAfter }}
  {{- end }},
  "sort": [
    {
      "created_at": {
        "order": "desc"
      }
    },
    {"_id": "asc"}
  ]
}`

// transfersIndexMapping keeps the identifiers exact so term filters match
// them verbatim.
const transfersIndexMapping = `{
  "mappings": {
    "properties": {
      "principal":       {"type": "keyword"},
      "target_endpoint": {"type": "keyword"},
      "target_path":     {"type": "keyword"},
      "task_ids":        {"type": "keyword"},
      "failures":        {"type": "text"},
      "status":          {"type": "integer"},
      "created_at":      {"type": "date"}
    }
  }
}`
